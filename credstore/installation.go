package credstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const installationFile = "installation_id"

// InstallationID returns the identifier of this client installation, creating and
// persisting a new UUID in folder the first time it is asked for.
func InstallationID(folder string) (string, error) {
	path := filepath.Join(folder, installationFile)

	data, err := os.ReadFile(path)
	if err == nil {
		if id, perr := uuid.Parse(strings.TrimSpace(string(data))); perr == nil {
			return id.String(), nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("[InstallationID] read %s: %w", path, err)
	}

	if err := os.MkdirAll(folder, 0o700); err != nil {
		return "", fmt.Errorf("[InstallationID] create folder: %w", err)
	}
	id := uuid.New().String()
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("[InstallationID] write %s: %w", path, err)
	}
	return id, nil
}
