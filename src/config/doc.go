// Package config defines the configuration of an MPL node: the protocol
// parameters of the forwarding engine plus logging, storage, service and
// lifecycle settings.
package config
