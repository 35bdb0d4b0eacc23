package main

import "vahan-scraper/cmd/vahan/cmd"

func main() {
	cmd.Execute()
}
