package main

import "github.com/Taycanstar/podsapp/cmd/pods"

func main() {
	pods.Execute()
}
