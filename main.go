// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/qingshui/landgods/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
