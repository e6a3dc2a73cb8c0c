package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownDataset = errors.New("unknown dataset")

// All is the keyword which selects every known dataset.
const All = "all"

var vtonhdGdriveID = "1Uc0DTTkSfCPXDhd4CMx2TQlzlC6Y-Qyc"

var registry = []Descriptor{
	{
		Name:     "vtonhd",
		Title:    "VITON-HD",
		Homepage: "https://github.com/shadow2496/VITON-HD",
		Sources: []Source{
			{Kind: GoogleDrive, Location: vtonhdGdriveID, Archive: "viton_hd.zip"},
		},
		Splits: []string{"train", "test"},
		Verify: true,
		ManualSteps: []string{
			"Visit: https://github.com/shadow2496/VITON-HD",
			"Download the preprocessed dataset zip",
		},
		Note: "13,679 image pairs of frontal-view women and top-clothing items (1024x768)",
	},
	{
		Name:     "vton",
		Title:    "VITON (VITON-HD mirror)",
		Homepage: "https://github.com/shadow2496/VITON-HD",
		Sources: []Source{
			{Kind: GoogleDrive, Location: vtonhdGdriveID, Archive: "viton_hd.zip"},
		},
		Splits: []string{"train", "test"},
		ManualSteps: []string{
			"Visit: https://github.com/shadow2496/VITON-HD",
			"Download the preprocessed dataset zip",
		},
		Note: "The original VITON dataset is no longer publicly available; VITON-HD is used instead",
	},
	{
		Name:     "dresscode",
		Title:    "DressCode",
		Homepage: "https://github.com/aimagelab/dress-code",
		Sources: []Source{
			{
				Kind:     HTTP,
				Location: "https://huggingface.co/datasets/aimagelab/DressCode/resolve/main/DressCode_images.zip",
				Archive:  "dresscode_images.zip",
			},
			{
				Kind:     HTTP,
				Location: "https://huggingface.co/datasets/aimagelab/DressCode/resolve/main/DressCode_masks.zip",
				Archive:  "dresscode_masks.zip",
			},
		},
		Categories:   []string{"dresses", "upper_body", "lower_body"},
		Splits:       []string{"train", "test"},
		Keep:         []string{"images", "cloth", "label_maps", "agnostic-mask"},
		IncludedData: []string{"person_images", "cloth_images", "segmentation_masks"},
		ManualSteps: []string{
			"Visit: https://github.com/aimagelab/dress-code",
			"Fill out the form with institutional email",
			"Download the dataset",
		},
		Note: "Filtered version - only person images, cloth images, and segmentation masks",
	},
	{
		Name:     "deepfashion",
		Title:    "DeepFashion",
		Homepage: "http://mmlab.ie.cuhk.edu.hk/projects/DeepFashion.html",
		Sources: []Source{
			{
				Kind:     Kaggle,
				Location: "paramaggarwal/fashion-product-images-dataset",
				Archive:  "fashion-product-images-dataset.zip",
			},
		},
		Subset: Sampling{Fraction: 0.20, Seed: 42},
		ManualSteps: []string{
			"Official DeepFashion: http://mmlab.ie.cuhk.edu.hk/projects/DeepFashion.html",
			"Kaggle alternative: https://www.kaggle.com/datasets/paramaggarwal/fashion-product-images-dataset",
			"Kaggle API token: create at https://www.kaggle.com/settings and place kaggle.json in ~/.kaggle/ (Linux/Mac) or C:\\Users\\<User>\\.kaggle\\ (Windows)",
		},
		Note: "Random 20% subset of DeepFashion dataset",
	},
}

// Descriptors returns all known datasets, in the order of processing.
func Descriptors() []Descriptor {
	ret := make([]Descriptor, len(registry))
	copy(ret, registry)
	return ret
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for _, d := range registry {
		names = append(names, d.Name)
	}
	return names
}

// Lookup finds a dataset by name (case insensitive).
func Lookup(name string) (Descriptor, error) {
	for _, d := range registry {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf(
		"%w: %s (known: %s)", ErrUnknownDataset, name, strings.Join(Names(), ", "),
	)
}

// Resolve converts dataset names into descriptors.
//
// "all" expands to every known dataset. Duplicates are removed, and the order of
// first appearance is kept.
func Resolve(names []string) ([]Descriptor, error) {
	seen := map[string]struct{}{}
	ret := []Descriptor{}
	add := func(d Descriptor) {
		if _, ok := seen[d.Name]; ok {
			return
		}
		seen[d.Name] = struct{}{}
		ret = append(ret, d)
	}

	for _, n := range names {
		if strings.EqualFold(n, All) {
			for _, d := range registry {
				add(d)
			}
			continue
		}
		d, err := Lookup(n)
		if err != nil {
			return nil, err
		}
		add(d)
	}
	return ret, nil
}
