// entropy runs coin-flip and candle-light entropy experiments: a control
// baseline followed by a number of active trials.
package main

func main() {
	Execute()
}
