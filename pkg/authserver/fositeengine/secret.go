// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package fositeengine

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashSecret hashes a client secret for storage on a fosite client. fosite
// compares client secrets with bcrypt.
func HashSecret(secret string) ([]byte, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash client secret: %w", err)
	}
	return hashed, nil
}
