// Package credstore provides persistent storage for WeChat Official Account
// credentials (AppID, AppSecret and the optional server token / encoding key).
//
// Two storage backends are supported:
//   - File: JSON document in the tool's config directory with atomic writes
//     and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows
//     Credential Manager, Linux Secret Service)
//
// Environment variables can supply AppID and AppSecret on top of either
// backend; Resolve applies them with precedence over stored values and writes
// back only when they actually change what is stored.
package credstore
