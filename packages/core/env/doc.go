// Package env prepares the environment handed to the test process.
//
// Variables come from three layers, later layers winning:
//   - the current process environment
//   - an optional .env file (KEY=value, quoted values, # comments)
//   - env entries from the nbtest config file
//
// Config entries may reference {{NAME}} from the .env file and {{$NAME}}
// from the process environment. Everything else is passed through to the
// test engine as-is.
package env
