// Package sanitizer cleans user supplied text before it is echoed back to a
// chat channel or forwarded to an alert sink.
//
// ChatText is the main entry point for command options:
//
//	name := sanitizer.ChatText(cc.String("name"), 100)
//	email := sanitizer.NormalizeEmail(cc.String("email"))
//
// The remaining helpers are small composable string transforms.
package sanitizer
