package internal

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// CheckForUpdate checks if a newer version is available
func CheckForUpdate() (bool, string, error) {
	latest, err := GetLatestVersion()
	if err != nil {
		return false, "", err
	}

	if CompareVersions(latest, Version) > 0 {
		return true, latest, nil
	}

	return false, latest, nil
}

// UpdateToLatest downloads and installs the latest version
func UpdateToLatest() error {
	fmt.Println("Checking for updates...")

	latest, err := GetLatestVersion()
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}

	if CompareVersions(latest, Version) <= 0 {
		fmt.Printf("You're already on the latest version (v%s)\n", Version)
		return nil
	}

	fmt.Printf("Updating from v%s to v%s...\n", Version, latest)

	downloadURL := GetDownloadURL(latest)

	fmt.Println("Downloading...")
	tmpFile, err := downloadBinary(downloadURL)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer os.Remove(tmpFile)

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return fmt.Errorf("failed to resolve symlinks: %w", err)
	}

	if err := os.Chmod(tmpFile, 0755); err != nil {
		return fmt.Errorf("failed to make binary executable: %w", err)
	}

	fmt.Println("Installing...")
	if err := replaceBinary(tmpFile, execPath); err != nil {
		return fmt.Errorf("failed to replace binary: %w", err)
	}

	fmt.Printf("✓ Successfully updated to v%s!\n", latest)
	fmt.Println("Restart chatpane to use the new version.")

	return nil
}

// downloadBinary downloads a binary from the given URL
func downloadBinary(url string) (string, error) {
	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	tmpFile, err := os.CreateTemp("", "chatpane-update-*")
	if err != nil {
		return "", err
	}
	defer tmpFile.Close()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		os.Remove(tmpFile.Name())
		return "", err
	}

	return tmpFile.Name(), nil
}

// replaceBinary replaces the old binary with the new one
func replaceBinary(newPath, oldPath string) error {
	// On Windows we can't replace a running executable; on Unix we can.
	if runtime.GOOS == "windows" {
		oldBackup := oldPath + ".old"
		if err := os.Rename(oldPath, oldBackup); err != nil {
			return fmt.Errorf("failed to backup old binary: %w", err)
		}

		if err := copyFile(newPath, oldPath); err != nil {
			os.Rename(oldBackup, oldPath)
			return err
		}

		os.Remove(oldBackup)
	} else {
		if err := os.Rename(newPath, oldPath); err != nil {
			// rename fails across devices; fall back to copy
			if err := copyFile(newPath, oldPath); err != nil {
				return err
			}
		}
	}

	return nil
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return err
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	return os.Chmod(dst, srcInfo.Mode())
}
