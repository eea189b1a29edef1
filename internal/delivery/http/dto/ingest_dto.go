package dto

type IngestCaseRequest struct {
	FilePath string `json:"filePath"`
}

type IngestCaseResponse struct {
	CaseID int64 `json:"caseId"`
	Chunks int   `json:"chunks"`
}

type ReindexFolderRequest struct {
	FolderPath   string `json:"folderPath"`
	DropExisting bool   `json:"dropExisting"`
}

type IngestScrapedRequest struct {
	MetadataCSVPath string `json:"metadataCsvPath"`
	DropExisting    bool   `json:"dropExisting"`
}
