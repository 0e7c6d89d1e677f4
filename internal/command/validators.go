// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/staranto/flavorcache/internal/provider"
)

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

func StoreValidator(value any) error {
	if !slices.Contains(storeKinds(), value.(string)) {
		return fmt.Errorf("must be one of %v", storeKinds())
	}
	return nil
}

// KeyPrefixValidator rejects prefixes that could never form a valid key.
func KeyPrefixValidator(value any) error {
	s := value.(string)
	if strings.Contains(s, ",") {
		return errors.New("must not contain commas")
	}
	if len(s) > provider.MaxKeyLength-3 {
		return fmt.Errorf("must be at most %d characters", provider.MaxKeyLength-3)
	}
	return nil
}

func SizeValidator(value any) error {
	n, err := humanize.ParseBytes(value.(string))
	if err != nil {
		return fmt.Errorf("must be a size such as 500MiB: %w", err)
	}
	if n == 0 {
		return errors.New("must be greater than zero")
	}
	return nil
}

func storeKinds() []string {
	return provider.StoreKinds
}
