// Package github implements the remote provider port against the GitHub
// REST API using go-github, with dual-strategy rate limiting (proactive
// token bucket plus reactive header tracking).
package github
