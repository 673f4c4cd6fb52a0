package main

import "github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/cmd"

func main() {
	cmd.Execute()
}
