package params

import "testing"

// SetupTestConfigCleanup preserves the active configuration so that tests may
// override parameters without affecting other tests.
func SetupTestConfigCleanup(t testing.TB) {
	prevConfig := ProtoConfig().Copy()
	t.Cleanup(func() {
		OverrideProtocolConfig(prevConfig)
	})
}
