// Package preflight provides readiness checks for the external tools and
// filesystem paths mpsync depends on.
//
// These checks run in two contexts:
//   - `mpsync sync` calls CheckSystemDeps and refuses to start when a
//     required tool is missing.
//   - `mpsync doctor` renders every result, including tool versions and
//     directory permissions.
package preflight
