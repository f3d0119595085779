// Package isolation derives collision-free test identities per parallel lane.
//
// The backend store is shared by every lane of a run. The only protection
// against two lanes racing on the same record (for example both consuming one
// single-use reset key) is that each lane works on accounts derived from its
// own (purpose, lane) key:
//
//	alloc, _ := isolation.NewAllocator(os.Getenv("E2E_LANE"))
//	user, _ := alloc.IsolatedUser("authLogin")
//	// chromium: isolated.auth-login.chromium@e2e.test
//	// firefox:  isolated.auth-login.firefox@e2e.test
//
// Derivation is pure; the allocator never touches the backend. Lookup hands
// the derived fixture to a Provisioner when a test wants lazy provisioning.
package isolation
