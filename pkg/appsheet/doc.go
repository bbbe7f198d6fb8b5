// Package appsheet provides a client for the AppSheet Action API, the HTTP
// endpoint (POST /api/v2/apps/<app>/tables/<table>/Action) used to Find,
// Add, Edit and Delete rows of an app's tables.
//
// The Client issues exactly one request per call and performs no retries
// unless asked to. Find combines a server side selector, built with
// BuildSelector, with an optional local filter on the returned rows. Delete
// addresses rows through a RowKey, either a SingleKey or a CompositeKey
// holding every key column of the table. BuildCompositeKey reproduces the
// _ComputedKey value the platform derives for multi-column keys, which can
// be matched with Find.
//
// Credentials are passed in a Config; ConfigFromEnv reads them from the
// environment or a local .env file.
package appsheet
