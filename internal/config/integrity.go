package config

import (
	"fmt"
	"path/filepath"
)

// VerifyIntegrity checks the config file against its .checksums manifest.
// This is `blockeval config check`: a missing manifest is a warning, a hash
// mismatch or a file missing from the manifest is a hard failure.
func VerifyIntegrity(configPath string) (*IntegrityResult, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	result := &IntegrityResult{Passed: true}
	configDir := filepath.Dir(absPath)

	manifest, err := LoadChecksums(configDir)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no .checksums manifest found in %s; run 'blockeval config lock' to enable integrity verification", configDir))
		return result, nil
	}

	basename := filepath.Base(absPath)
	expectedHash, ok := manifest.Hashes[basename]
	if !ok {
		result.Passed = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("config file %s not in .checksums manifest; run 'blockeval config lock'", basename))
		return result, nil
	}

	if err := VerifyFileHash(absPath, expectedHash); err != nil {
		result.Passed = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("%v\nThis indicates tampering or unauthorized modification.\n"+
				"If you edited this file intentionally, run: blockeval config lock", err))
	}

	return result, nil
}
