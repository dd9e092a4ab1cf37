// Package runstate records per-run item outcomes in a small SQLite database
// for after-the-fact reporting. It never feeds back into resume decisions;
// the plaintext ledger remains the sole resume authority.
package runstate
