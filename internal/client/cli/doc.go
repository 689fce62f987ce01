// Package cli provides the interactive cribfeed command-line client.
//
// Every line typed at the prompt is dispatched through a cobra command tree
// against one long-lived client.App, so the session and the feed survive
// between commands. Typical flow: login, browse the feed, like, save,
// comment and post.
//
// Commands:
//   - login, register, logout, whoami
//   - feed [--comments]
//   - post [text...] [--media key], upload <file>
//   - like <post>, save <post>, comment <post> <text...>
//   - help, exit | quit
//
// A <post> argument is either a post id or its 1-based position in the feed.
package cli
