package main

import "github.com/hardweiwei/fuwuqiyunweiguzhang/cmd"

func main() {
	cmd.Execute()
}
