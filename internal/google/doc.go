// Package google provides OAuth2 authentication and token management for
// the Google Tasks API.
//
// AuthProvider gives the rest of the server an explicit token lifecycle
// (load, refresh, save) without touching storage itself. FileAuthProvider
// keeps the token as JSON in the configuration directory and persists
// every refreshed token automatically.
//
// The interactive login in the auth command uses AuthCodeURL, WaitForCode
// and Exchange: the user authorizes in a browser, Google redirects to a
// loopback listener and the code is exchanged with PKCE.
package google
