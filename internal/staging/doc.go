// Package staging removes scratch directories left behind by interrupted
// provisioning runs.
package staging
