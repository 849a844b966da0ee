package credstore_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-storefront/credstore"
	"github.com/jrsteele09/go-storefront/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNewSelectsDriver(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	for _, driver := range []string{credstore.DriverMemory, credstore.DriverFile, credstore.DriverSQLite, credstore.DriverRedis} {
		t.Run(driver, func(t *testing.T) {
			t.Setenv("FOLDER", t.TempDir())
			t.Setenv("STORAGE_DRIVER", driver)
			t.Setenv("REDIS_ADDR", mr.Addr())

			s, closeFn, err := credstore.New(context.Background(), config.New())
			require.NoError(t, err)
			t.Cleanup(func() { _ = closeFn() })
			exerciseStorage(t, s)
		})
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	t.Setenv("FOLDER", t.TempDir())
	t.Setenv("STORAGE_DRIVER", "etcd")

	_, _, err := credstore.New(context.Background(), config.New())
	require.Error(t, err)
}
