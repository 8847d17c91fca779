// conf/utils.go
package conf

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"

	"log"
)

// GetDefaultConfigPaths returns a list of default configuration paths for
// the current operating system, in search order.
func GetDefaultConfigPaths() ([]string, error) {
	var configPaths []string

	exePath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("error fetching executable path: %w", err)
	}
	exeDir := filepath.Dir(exePath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		configPaths = []string{
			exeDir,
			filepath.Join(homeDir, "AppData", "Roaming", "scribe"),
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", "scribe"),
			"/etc/scribe",
		}
	}

	return configPaths, nil
}

// GetBasePath expands environment variables in the given path and ensures
// the resulting directory exists.
func GetBasePath(path string) string {
	expandedPath := os.ExpandEnv(path)
	basePath := filepath.Clean(expandedPath)

	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		if err := os.MkdirAll(basePath, 0o755); err != nil {
			fmt.Printf("failed to create directory '%s': %v\n", basePath, err)
		}
	}

	return basePath
}

// CheckAudioGroupMembership warns on Linux if the current non-root user is
// not a member of the audio group, which malgo's capture backends require
// for direct device access.
func CheckAudioGroupMembership() {
	if runtime.GOOS != "linux" {
		return
	}

	currentUser, err := user.Current()
	if err != nil {
		fmt.Printf("failed to get current user: %v\n", err)
		return
	}
	if currentUser.Username == "root" {
		return
	}

	groupIDs, err := currentUser.GroupIds()
	if err != nil {
		log.Printf("failed to get group memberships: %v\n", err)
		return
	}

	for _, gid := range groupIDs {
		group, err := user.LookupGroupId(gid)
		if err != nil {
			continue
		}
		if group.Name == "audio" {
			return
		}
	}

	log.Printf("user %q is not a member of the audio group, audio capture may fail to open a device", currentUser.Username)
	log.Println("add the user with: sudo usermod -a -G audio", currentUser.Username)
}
