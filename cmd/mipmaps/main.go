package main

import "github.com/vkngwrapper/tutorials/internal/sample"

func main() {
	sample.Main(sample.Mipmaps)
}
