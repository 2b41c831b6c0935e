// Package config loads the integrationhealth service configuration from a
// YAML file.
//
// Environment references of the form ${VAR} are expanded before parsing and
// a missing variable is an error; $$ yields a literal dollar sign. Fields
// absent from the file keep the defaults returned by Default. Watch reloads
// the file when it changes on disk.
package config
