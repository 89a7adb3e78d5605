// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import "github.com/olegiv/medlem-go/cmd/medlemctl/cmd"

func main() {
	cmd.Execute()
}
