// Package security derives a read-only posture report from engine settings.
package security
