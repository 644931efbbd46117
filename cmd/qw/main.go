// qw checks and freezes the design traceability chain kept in a repository's
// issues and pull requests.
//
// Usage:
//
//	qw init [--service=<github|gitlab|filesystem>] [--repo-url=<url>]
//	qw check [--issue=<id>]... [--pr=<id>]...
//	qw freeze [--yes | --no] [--dry-run] [--no-comment]
//	qw component add <name> <short-code> [description]
//	qw component list
//	qw config get [key]
//	qw config set <key> <value> [--global]
//
// Exit status is 0 on success, 1 when check reports error findings and 2 on
// any other failure.
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
