package main

import "github.com/StudyCore/studycore/cmd/studyctl/cmd"

func main() {
	cmd.Execute()
}
