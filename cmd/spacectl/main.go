// Command spacectl exercises spacekit memory spaces from the command line.
package main

func main() {
	execute()
}
