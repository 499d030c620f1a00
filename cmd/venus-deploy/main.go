package main

import "github.com/Felixrising/venus-os-dbus-serialbattery/cmd/venus-deploy/cmd"

func main() {
	cmd.Execute()
}
