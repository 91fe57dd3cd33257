// Package healthcheck runs shell check commands concurrently and collects,
// for each command and in input order, its combined output and exit status.
//
// Every command is handed to a shell (`/bin/sh -c` by default), so pipes,
// redirections and other metacharacters work as written. Commands are
// trusted configuration: whoever can edit the check list can run arbitrary
// code as the lbhealth user.
package healthcheck
