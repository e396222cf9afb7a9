package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCache_HoldsConfiguredItems(t *testing.T) {
	for _, maxItems := range []int64{100, 10000} {
		t.Run(fmt.Sprintf("max_%d", maxItems), func(t *testing.T) {
			local, err := NewLocalCache(maxItems, time.Minute)
			require.NoError(t, err)
			defer local.Close()

			n := int(maxItems / 2)
			for i := 0; i < n; i++ {
				local.Set(fmt.Sprintf("code%d", i), fmt.Sprintf("https://example.com/%d", i))
			}
			local.Wait()

			resident := 0
			for i := 0; i < n; i++ {
				if _, ok := local.Get(fmt.Sprintf("code%d", i)); ok {
					resident++
				}
			}
			assert.Equal(t, n, resident)
		})
	}
}

func TestLocalCache_Del(t *testing.T) {
	local := newLocal(t)
	defer local.Close()

	local.Set("c7Xa2Q", "https://example.com/")
	local.Wait()
	_, ok := local.Get("c7Xa2Q")
	require.True(t, ok)

	local.Del("c7Xa2Q")
	_, ok = local.Get("c7Xa2Q")
	assert.False(t, ok)
}
