// Package config resolves qw settings from layered sources with clear
// precedence:
//  1. Command-line flags (highest priority)
//  2. Environment variables (QW_ prefix)
//  3. Local config (.qw/config.yaml in the git root)
//  4. Global config (~/.config/qw/config.yaml)
//  5. Built-in defaults (lowest priority)
//
// Nested YAML maps resolve to dotted keys, so
//
//	notify:
//	  slack_webhook: https://hooks.slack.com/services/...
//
// sets "notify.slack_webhook", which the environment can override with
// QW_NOTIFY_SLACK_WEBHOOK.
//
// # Basic Usage
//
//	resolver := config.NewResolver(config.DefaultResolverConfig())
//	resolved := resolver.Resolve()
//	settings, err := resolved.Settings(resolver.GitRoot())
//
// Settings validates every value and returns an errors.ConfigurationError
// naming the offending key and the layer it came from.
//
// # Saving
//
// SaveConfig writes single keys back to the global or local file, keeping
// the rest of the file intact:
//
//	err := config.DefaultSaveConfig().SaveLocal(root, config.KeyChainStart, "strict")
package config
