// Package builtin contains the slash commands every bot instance ships with:
// ping, status, alert-lead, alert-system and help.
//
//	reg, err := builtin.NewRegistry(
//		builtin.WithStatusProvider(bot),
//		builtin.WithAlerter(webhook),
//		builtin.WithLogger(log),
//	)
package builtin
