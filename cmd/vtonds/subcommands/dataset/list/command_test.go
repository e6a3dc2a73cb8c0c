package list_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/vtonlab/vtonds/cmd/vtonds/config/settings"
	"github.com/vtonlab/vtonds/cmd/vtonds/subcommands/dataset/list"
	"github.com/vtonlab/vtonds/cmd/vtonds/subcommands/internal/commandline"
	"github.com/vtonlab/vtonds/cmd/vtonds/subcommands/logger"
	"github.com/vtonlab/vtonds/pkg/dataset"
)

func TestList(t *testing.T) {
	stdout := new(bytes.Buffer)
	testee := list.Task(dataset.Descriptors)
	err := testee(
		context.Background(), logger.Null(), settings.Default(),
		&commandline.MockCommandline[struct{}]{Stdout_: stdout},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}

	out := stdout.String()
	for _, name := range dataset.Names() {
		if !strings.Contains(out, name+"\t") {
			t.Errorf("%s is not listed:\n%s", name, out)
		}
	}
	for _, expected := range []string{
		"s3://p1-to-ep1/baselines/dresscode/",
		"subset:   20% (seed 42)",
		"kaggle:paramaggarwal/fashion-product-images-dataset",
	} {
		if !strings.Contains(out, expected) {
			t.Errorf("%q is not in output:\n%s", expected, out)
		}
	}
}
