// Package discord adapts the application services to Discord: slash command
// definitions, component custom ids, interaction routing, message rendering
// and the REST gateway used to mirror records and manage roles.
package discord
