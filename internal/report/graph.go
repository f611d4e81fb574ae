package report

import (
	"context"
	"path"
	"strings"

	"github.com/RishiKendai/clonescope/internal/models"
	"github.com/RishiKendai/clonescope/internal/stats"
)

const (
	nodeType  = "node"
	leafType  = "leaf"
	sideLeft  = "left"
	sideRight = "right"
)

// graphRepo and graphFolder keep insertion order while the tree is grown
type graphRepo struct {
	node    models.GraphRepository
	folders []*graphFolder
	byPath  map[string]*graphFolder
}

type graphFolder struct {
	node   models.GraphFolder
	files  []*models.GraphFile
	byPath map[string]*models.GraphFile
}

// Graph builds the repository → folder → file tree of a group. Links point
// from a file to the files it was paired with. Only structural folders whose
// every file kept at least one same-category link survive.
func (b *Builder) Graph(ctx context.Context, sha string) (*models.GroupGraph, error) {
	data, err := b.load(ctx, sha)
	if err != nil {
		return nil, err
	}

	repos := make([]*graphRepo, 0)
	repoBySha := make(map[string]*graphRepo)

	for _, p := range data.pairs {
		for _, side := range []models.PairSide{p.Left, p.Right} {
			other, _ := p.Other(side.FileKey())
			otherSide := sideLeft
			if side.FileKey() == p.Left.FileKey() {
				otherSide = sideRight
			}

			repo, ok := repoBySha[side.RepositorySha]
			if !ok {
				repo = newGraphRepo(data.repository(side.RepositorySha))
				repoBySha[side.RepositorySha] = repo
				repos = append(repos, repo)
			}
			folder := repo.folder(side)
			file := folder.file(side)

			otherRepo := data.repository(other.RepositorySha)
			oriented := p.Oriented(side.FileKey())
			file.Links = append(file.Links, models.GraphLink{
				PairID:                  p.ID,
				Similarity:              p.Similarity,
				TotalOverlap:            p.TotalOverlap,
				LongestFragment:         p.LongestFragment,
				PairFileSha:             other.FileSha,
				PairFileSide:            otherSide,
				PairFilePath:            other.Filepath,
				PairFileType:            other.Category,
				PairFileLines:           other.LineCount,
				PairFileRepository:      other.RepositorySha,
				PairFileRepositoryName:  otherRepo.Name,
				PairFileRepositoryOwner: otherRepo.Owner,
				Fragments:               oriented.Fragments,
			})
		}
	}

	out := &models.GroupGraph{
		Sha:          data.group.Sha,
		Date:         data.group.CreatedAt,
		Repositories: make([]models.GraphRepository, 0, len(repos)),
	}
	for _, repo := range repos {
		node, ok := repo.prune()
		if !ok {
			continue
		}
		out.Repositories = append(out.Repositories, node)
		out.NumberOfFolders += node.NumberOfFolders
		out.NumberOfFiles += node.NumberOfFiles
		out.TotalLines += node.RepoLines
	}
	out.NumberOfRepos = len(out.Repositories)
	return out, nil
}

func newGraphRepo(r models.Repository) *graphRepo {
	return &graphRepo{
		node: models.GraphRepository{
			Type:  nodeType,
			Class: "repository",
			Name:  r.Owner + "/" + r.Name,
			Sha:   r.Sha,
			Repo:  r.Name,
			Owner: r.Owner,
		},
		byPath: make(map[string]*graphFolder),
	}
}

// folder returns the folder holding the file, creating it typed after the
// first file seen in it.
func (r *graphRepo) folder(side models.PairSide) *graphFolder {
	dir := folderPath(side.Filepath)
	if f, ok := r.byPath[dir]; ok {
		return f
	}
	folderType := models.CategoryUnknown
	if side.Category.Structural() {
		folderType = side.Category
	}
	f := &graphFolder{
		node: models.GraphFolder{
			Type:       nodeType,
			Class:      "folder",
			Name:       path.Base(dir),
			FolderPath: dir,
			FolderType: folderType,
		},
		byPath: make(map[string]*models.GraphFile),
	}
	r.byPath[dir] = f
	r.folders = append(r.folders, f)
	return f
}

func (f *graphFolder) file(side models.PairSide) *models.GraphFile {
	if file, ok := f.byPath[side.Filepath]; ok {
		return file
	}
	base := path.Base(side.Filepath)
	file := &models.GraphFile{
		Type:     leafType,
		Class:    "file",
		Name:     strings.SplitN(base, ".", 2)[0],
		Sha:      side.FileSha,
		Filepath: side.Filepath,
		FileType: side.Category,
		Lines:    side.LineCount,
		Value:    side.LineCount,
		Links:    []models.GraphLink{},
	}
	f.byPath[side.Filepath] = file
	f.files = append(f.files, file)
	return file
}

// prune applies the link and folder filters and computes the fevers. ok is
// false when no folder of the repository survives.
func (r *graphRepo) prune() (models.GraphRepository, bool) {
	node := r.node
	node.Children = make([]models.GraphFolder, 0, len(r.folders))

	for _, folder := range r.folders {
		kept, ok := folder.prune()
		if ok {
			node.Children = append(node.Children, kept)
		}
	}
	if len(node.Children) == 0 {
		return node, false
	}

	fevers := make([]float64, 0, len(node.Children))
	for _, folder := range node.Children {
		node.NumberOfFiles += folder.NumberOfFiles
		node.RepoLines += folder.FolderLines
		fevers = append(fevers, folder.Fever)
	}
	node.NumberOfFolders = len(node.Children)
	node.Fever = stats.Mean(fevers)
	return node, true
}

func (f *graphFolder) prune() (models.GraphFolder, bool) {
	node := f.node
	node.Children = make([]models.GraphFile, 0, len(f.files))

	for _, file := range f.files {
		if file.FileType != node.FolderType {
			continue
		}
		kept := *file
		kept.Links = make([]models.GraphLink, 0, len(file.Links))
		for _, link := range file.Links {
			if link.PairFileType == kept.FileType {
				kept.Links = append(kept.Links, link)
			}
		}
		node.Children = append(node.Children, kept)
	}

	if !node.FolderType.Structural() || len(node.Children) == 0 {
		return node, false
	}
	for _, file := range node.Children {
		if len(file.Links) == 0 {
			return node, false
		}
	}

	fevers := make([]float64, 0, len(node.Children))
	for i := range node.Children {
		scoreFile(&node.Children[i])
		node.FolderLines += node.Children[i].Lines
		fevers = append(fevers, node.Children[i].Fever)
	}
	node.NumberOfFiles = len(node.Children)
	node.Fever = stats.Mean(fevers)
	node.StandardDeviation = stats.PopulationStdDev(fevers)
	return node, true
}

// scoreFile fills the normalized impact of every link, the file fever and
// its top link
func scoreFile(file *models.GraphFile) {
	peak := 0
	for _, link := range file.Links {
		if link.TotalOverlap > peak {
			peak = link.TotalOverlap
		}
	}

	similarities := make([]float64, 0, len(file.Links))
	top := 0
	for i := range file.Links {
		link := &file.Links[i]
		link.NormalizedImpact = stats.Ratio(float64(link.TotalOverlap), float64(peak))
		similarities = append(similarities, link.Similarity)

		best := file.Links[top]
		if link.Similarity > best.Similarity || (link.Similarity == best.Similarity && link.TotalOverlap > best.TotalOverlap) {
			top = i
		}
	}
	file.Fever = stats.Mean(similarities)

	if len(file.Links) > 0 {
		best := file.Links[top]
		file.Top = &models.GraphTop{
			PairID:         best.PairID,
			PairFilePath:   best.PairFilePath,
			Similarity:     best.Similarity,
			RepositoryName: best.PairFileRepositoryName,
		}
	}
}

func folderPath(filepath string) string {
	dir := path.Dir(filepath)
	if dir == "." {
		return ""
	}
	return dir
}
