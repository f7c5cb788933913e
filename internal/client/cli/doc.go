// Package cli provides the package index command-line client.
//
// Commands:
//   - create NAME MODULE_JSON ZIP: publish a new package and upload its archive
//   - update NAME MODULE_JSON ZIP: publish a new version
//   - read NAME: print the stored record
//   - delete NAME: remove a package
//   - useradd USERNAME: register an account; the password arrives by e-mail
//   - passwd USERNAME: change a password
//
// Credentials are prompted for; passwords are read without echo when stdin
// is a terminal.
package cli
