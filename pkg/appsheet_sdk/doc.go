// Package appsheet_sdk bootstraps an AppSheet client from the environment.
// APPSHEET_RUNTIME_MODE selects between the live Action API ("http") and an
// in-memory store ("mock"); "auto", the default, uses the live API whenever
// credentials are configured. Mock stores can be pre-populated from the YAML
// file named by APPSHEET_MOCK_SEED, so the same program runs unchanged on a
// laptop without credentials.
package appsheet_sdk
