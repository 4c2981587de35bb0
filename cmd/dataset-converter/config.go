package main

const (
	configPath string = "config"

	schemaMode   string = "schema"
	nestedPolicy string = "nested"
	delimiter    string = "delimiter"
	useCRLF      string = "crlf"
	indexColumn  string = "index"
	previewRows  string = "preview"

	datasetID  string = "dataset"
	datasetDir string = "dataset-dir"
	fetchDir   string = "dir"
)

const (
	defaultInputPath string = "dataset/pokemonDB_dataset.json"
	defaultFetchDir  string = "dataset"
)
