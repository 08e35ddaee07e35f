package owl

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePublishGet(t *testing.T) {

	require := require.New(t)

	store := NewStore()
	_, ok := store.Get(ClassElectricity)
	require.False(ok, "empty store has no data")

	s, err := Parse([]byte(TestElectricityV2), time.Now())
	require.NoError(err)
	require.NoError(store.Publish(s))

	got, ok := store.Get(ClassElectricity)
	require.True(ok)
	require.Same(s, got)

	_, ok = store.Get(ClassSolar)
	require.False(ok, "other classes are untouched")
}

func TestStoreReplacesSnapshot(t *testing.T) {

	store := NewStore()
	first, err := store.Ingest([]byte(TestElectricityV2), time.Now())
	require.NoError(t, err)
	second, err := store.Ingest([]byte(TestElectricityLegacy), time.Now())
	require.NoError(t, err)

	got, _ := store.Get(ClassElectricity)
	assert.Same(t, second, got)
	assert.NotSame(t, first, got)
	assert.Equal(t, LegacySchema, got.Schema(), "no merge with the previous snapshot")
}

func TestStoreIngestMalformedLeavesStoreUntouched(t *testing.T) {

	store := NewStore()
	_, err := store.Ingest([]byte(TestSolarV2), time.Now())
	require.NoError(t, err)
	before := store.Snapshots()

	for _, p := range []string{`<electricity><chan>`, `<gas/>`, "\xff\xfe"} {
		_, err := store.Ingest([]byte(p), time.Now())
		assert.Error(t, err)
	}

	assert.Equal(t, before, store.Snapshots())
}

func TestStoresAreIndependent(t *testing.T) {

	a := NewStore()
	b := NewStore()
	_, err := a.Ingest([]byte(TestWeather), time.Now())
	require.NoError(t, err)

	_, ok := b.Get(ClassWeather)
	assert.False(t, ok)
}

func TestStoreConcurrentAccess(t *testing.T) {

	store := NewStore()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			payload := fmt.Sprintf(`<electricity ver='2'><property><current><watts>%d</watts></current></property></electricity>`, i)
			_, err := store.Ingest([]byte(payload), time.Now())
			assert.NoError(t, err)
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				if s, ok := store.Get(ClassElectricity); ok {
					_, err := s.Text("property/current/watts")
					assert.NoError(t, err, "readers never see a partial snapshot")
				}
			}
		}()
	}
	wg.Wait()

	s, ok := store.Get(ClassElectricity)
	require.True(t, ok)
	watts, err := s.Text("property/current/watts")
	require.NoError(t, err)
	assert.Equal(t, "499", watts)
}
