package config

const (
	defaultSessionDir         = "~/.local/share/sprocket/sessions"
	defaultLogDir             = "~/.local/share/sprocket/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultCSVDelimiter       = ","
	defaultTagsDelimiter      = ";"
	defaultFolderCreateType   = "Folder"
	defaultTaskCreateType     = "Generic"
	defaultTimelineFrameStart = 900000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SessionDir: defaultSessionDir,
			LogDir:     defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		CSV: CSV{
			Delimiter:     defaultCSVDelimiter,
			TagsDelimiter: defaultTagsDelimiter,
			DefaultTags:   []string{},
			Columns: []Column{
				{Name: "File Path", Type: "text", Required: true, ValidationPattern: `^(.+)$`},
				{Name: "Folder Path", Type: "text", Required: true, ValidationPattern: `^(/.+)$`},
				{Name: "Task Name", Type: "text", Required: true, ValidationPattern: `^(.+)$`},
				{Name: "Product Type", Type: "text", Default: "render", Required: false, ValidationPattern: `^(.+)$`},
				{Name: "Variant", Type: "text", Default: "Main", Required: false, ValidationPattern: `^(.+)$`},
				{Name: "Version", Type: "number", Default: "0", Required: false, ValidationPattern: `^(\d+)$`},
				{Name: "Frame Start", Type: "number", Required: true, ValidationPattern: `^(\d+)$`},
				{Name: "Frame End", Type: "number", Required: true, ValidationPattern: `^(\d+)$`},
				{Name: "Handle Start", Type: "number", Required: true, ValidationPattern: `^(\d+)$`},
				{Name: "Handle End", Type: "number", Required: true, ValidationPattern: `^(\d+)$`},
				{Name: "FPS", Type: "decimal", Required: true, ValidationPattern: `^(\d+(\.\d+)?)$`},
				{Name: "Representation", Type: "text", Default: "main", Required: false, ValidationPattern: `^(.+)$`},
				{Name: "Representation Colorspace", Type: "text", Required: false, ValidationPattern: `^(.*)$`},
				{Name: "Representation Tags", Type: "text", Required: false, ValidationPattern: `^(.*)$`},
				{Name: "Version Thumbnail", Type: "text", Required: false, ValidationPattern: `^(.*)$`},
				{Name: "Version Comment", Type: "text", Required: false, ValidationPattern: `^(.*)$`},
				{Name: "Slate Exists", Type: "bool", Required: false, ValidationPattern: `^(.*)$`},
				{Name: "Shot Width", Type: "number", Default: "0", Required: false, ValidationPattern: `^(\d*)$`},
				{Name: "Shot Height", Type: "number", Default: "0", Required: false, ValidationPattern: `^(\d*)$`},
				{Name: "Shot Pixel Aspect", Type: "decimal", Default: "0", Required: false, ValidationPattern: `^(\d*(\.\d+)?)$`},
			},
			Representations: []CSVRepresentation{
				{Name: "main", Extensions: []string{".exr", ".dpx", ".tif", ".png", ".jpg", ".mov", ".mp4", ".mxf", ".wav"}},
				{Name: "proxy", Extensions: []string{".mov", ".mp4"}},
			},
		},
		FolderCreation: FolderCreation{
			Enabled:          false,
			FolderCreateType: defaultFolderCreateType,
			FolderTypeRegexes: []TypeRegexRule{
				{Regex: `^(ep\d+)$`, Type: "Episode"},
				{Regex: `^(sc|sq|seq)\d+$`, Type: "Sequence"},
				{Regex: `^(sh\d+)$`, Type: "Shot"},
			},
			TaskCreateType: defaultTaskCreateType,
			TaskTypeRegexes: []TypeRegexRule{
				{Regex: `^comp`, Type: "Compositing"},
				{Regex: `^edit`, Type: "Editorial"},
			},
		},
		Editorial: Editorial{
			DefaultVariants: []string{"Main"},
			ClipNameTokenizer: []TokenizerRule{
				{Name: "_sequence_", Regex: `(sc\d{3})`},
				{Name: "_shot_", Regex: `(sh\d{3})`},
			},
			ShotRename: ShotRename{
				Enabled:  true,
				Template: "{project[code]}_{_sequence_}_{_shot_}",
			},
			ShotHierarchy: ShotHierarchy{
				Enabled:     true,
				ParentsPath: "{project}/{folder}/{sequence}",
				Parents: []HierarchyParent{
					{ParentType: "Project", Name: "project", Value: "{project[name]}"},
					{ParentType: "Folder", Name: "folder", Value: "shots"},
					{ParentType: "Sequence", Name: "sequence", Value: "{_sequence_}"},
				},
			},
			ShotAddTasks: []ShotTask{},
			ProductPresets: []ProductPreset{
				{
					ProductType:    "plate",
					Variant:        "Main",
					Enabled:        true,
					VersioningType: "incremental",
					Representations: []RepresentationRule{
						{Name: "exr", ContentType: "image_sequence", Extensions: []string{".exr"}},
						{Name: "movie", ContentType: "video", Extensions: []string{".mov", ".mp4"}, Tags: []string{"review"}},
						{Name: "thumbnail", ContentType: "thumbnail", Extensions: []string{".jpg", ".png"}},
					},
				},
				{
					ProductType:    "audio",
					Variant:        "Main",
					Enabled:        true,
					VersioningType: "incremental",
					Representations: []RepresentationRule{
						{Name: "wav", ContentType: "audio", Extensions: []string{".wav"}},
					},
				},
			},
			TimelineFrameStart: defaultTimelineFrameStart,
		},
		Batch: Batch{
			TextureExtensions: []string{".png", ".jpg", ".jpeg", ".tiff", ".tif", ".exr"},
			MovieExtensions:   []string{".mov", ".mp4", ".mxf", ".m4v", ".mpg"},
			DefaultTasks:      []string{"edit", "comp"},
			StripCommonAffix:  true,
		},
	}
}
