package main

import "github.com/phiguard/phiguard/cmd/phiguard"

func main() { phiguard.Execute() }
