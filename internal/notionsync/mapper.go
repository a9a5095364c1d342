package notionsync

import (
	"fmt"
	"time"

	"github.com/dkagawa/budgetline/internal/infra/bigquery"
	"github.com/jomei/notionapi"
)

// DepartmentSummaryID builds the stable key that ties a department total to its
// Notion page. One page exists per department, fiscal year and collection.
func DepartmentSummaryID(departmentCode string, fiscalYear int, collection string) string {
	return fmt.Sprintf("%s-%d-%s", departmentCode, fiscalYear, collection)
}

// DepartmentSummaryToNotionProperties converts a department total to Notion properties.
// Maps fields according to the NOTION_SETUP.md specification for the Budget Summary database.
// share is the department's fraction of the collection-wide total, in the range [0, 1].
func DepartmentSummaryToNotionProperties(dt *bigquery.DepartmentTotal, fiscalYear int, collection string, share float64) notionapi.Properties {
	props := notionapi.Properties{
		"Department": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: func() string {
							if dt.DepartmentName != "" {
								return dt.DepartmentName
							}
							return dt.DepartmentCode
						}(),
					},
				},
			},
		},
		"Summary ID": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: DepartmentSummaryID(dt.DepartmentCode, fiscalYear, collection),
					},
				},
			},
		},
		"Fiscal Year": notionapi.NumberProperty{
			Number: float64(fiscalYear),
		},
		"Collection": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: collection,
			},
		},
		"Total": notionapi.NumberProperty{
			Number: func() float64 {
				if dt.Total != nil {
					f, _ := dt.Total.Float64()
					return f
				}
				return 0
			}(),
		},
	}

	// Department Code
	if dt.DepartmentCode != "" {
		props["Department Code"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: dt.DepartmentCode,
					},
				},
			},
		}
	}

	// Share of Total (stored as a percentage, e.g. 12.5)
	if share > 0 {
		props["Share of Total"] = notionapi.NumberProperty{
			Number: share * 100,
		}
	}

	return props
}

// DocumentToNotionProperties converts a BigQuery DocumentRow to Notion properties.
// Maps fields according to the NOTION_SETUP.md specification for the Documents database.
func DocumentToNotionProperties(doc *bigquery.DocumentRow) notionapi.Properties {
	props := notionapi.Properties{
		"Document ID": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: doc.DocumentID,
					},
				},
			},
		},
		"Document Type": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: doc.DocumentType,
			},
		},
		"Snapshot Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(time.Date(
						doc.SnapshotDate.Year,
						doc.SnapshotDate.Month,
						doc.SnapshotDate.Day,
						0, 0, 0, 0, time.UTC,
					))
					return &d
				}(),
			},
		},
		"Upload Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(doc.UploadTS)
					return &d
				}(),
			},
		},
	}

	// Original Filename
	if doc.OriginalFilename != "" {
		props["Original Filename"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: doc.OriginalFilename,
					},
				},
			},
		}
	}

	// Bill Number
	if doc.BillNumber != "" {
		props["Bill Number"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: doc.BillNumber,
					},
				},
			},
		}
	}

	// Session Year
	if doc.SessionYear != 0 {
		props["Session Year"] = notionapi.NumberProperty{
			Number: float64(doc.SessionYear),
		}
	}

	// Biennium (formatted)
	if doc.BienniumFirstYear != 0 && doc.BienniumSecondYear != 0 {
		biennium := fmt.Sprintf("FY%d-FY%d", doc.BienniumFirstYear, doc.BienniumSecondYear)
		props["Biennium"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: biennium,
					},
				},
			},
		}
	}

	// Enacted Date
	if doc.EnactedDate.Valid {
		props["Enacted Date"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(time.Date(
						doc.EnactedDate.Date.Year,
						time.Month(doc.EnactedDate.Date.Month),
						doc.EnactedDate.Date.Day,
						0, 0, 0, 0, time.UTC,
					))
					return &d
				}(),
			},
		}
	}

	// Parse Status
	if doc.ParseStatus != "" {
		props["Parse Status"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: doc.ParseStatus,
			},
		}
	}

	// Processed Date
	if doc.ProcessedTS.Valid {
		props["Processed Date"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: (*notionapi.Date)(&doc.ProcessedTS.Timestamp),
			},
		}
	}

	// File Type
	if doc.FileMimeType != "" {
		props["File Type"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: doc.FileMimeType,
			},
		}
	}

	// GCS Link
	if doc.GCSURI != "" {
		props["GCS Link"] = notionapi.URLProperty{
			URL: doc.GCSURI,
		}
	}

	return props
}
