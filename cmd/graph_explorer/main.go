package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		logrus.WithError(err).Error("graph_explorer failed")
		os.Exit(1)
	}
}
