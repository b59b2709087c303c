package common

// AuthorizationHeaderName carries the bearer token on inbound webhook calls.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer "
