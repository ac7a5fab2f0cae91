// Command reel is the operator CLI for the reel daemon.
//
// It talks to the daemon over its Unix control socket and falls back to
// direct queue database access for queue commands when the daemon is down.
package main
