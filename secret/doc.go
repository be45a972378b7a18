// Package secret resolves the API key and other sensitive configuration
// values.
//
// It supports:
//   - Strict environment expansion (see ExpandEnvStrict)
//   - Pluggable secret providers (see Provider + Registry)
//   - Resolving secret references in configuration values (see Resolver)
//
// References use the prefix "secretref:":
//   - Full value:  secretref:env:ROOTSIGNALS_API_KEY
//   - Inline use:  Api-Key secretref:dotenv:ROOTSIGNALS_API_KEY
//
// Two providers are built in and registered with DefaultRegistry: "env"
// reads the process environment and "dotenv" reads a .env file.
package secret
