package domain

// ScopeServer is the distinguished scope for the server-wide webhook
// secret; every other scope is a store id.
const ScopeServer = "server"
