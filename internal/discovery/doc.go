// Package discovery implements Matrix client-server auto-discovery: turning a
// well-known object, or a server name whose /.well-known/matrix/client file
// holds one, into a validated homeserver and identity-server configuration.
//
// The flow has two halves.  Client.FromDiscoveryConfig and
// Client.FindClientConfig produce a Result, which records a State and an
// error Code for each service and may probe the servers over HTTP.
// BuildValidatedConfig then folds a Result into a ValidatedServerConfig,
// failing with a *DiscoveryError when the Result is unusable.
//
// With syntaxOnly set, BuildValidatedConfig accepts servers that are
// well-formed but currently unreachable, recording the probe failure as a
// Warning instead of failing.  Startup uses this mode so a homeserver
// outage never turns into a configuration error.
package discovery
