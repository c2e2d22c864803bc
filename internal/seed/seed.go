package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"agora/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	// MaxDays bounds how far in the past generated content is dated.
	MaxDays int
	// DryRun builds entities without touching the database.
	DryRun bool
}

// upvoteShare is the percentage of seeded votes that are upvotes. Forums
// skew positive.
const upvoteShare = 70

// Seed populates the database with demo data: users, categories, posts,
// threaded comments, a vote ledger and favorite/subscription memberships.
// Derived scores are recomputed from the ledger at the end, the same way the
// application does after every vote.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	f := NewFactory(db, opts)
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	users, err := createUsers(f, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("%d users created", len(users))

	categories, err := seedCategories(db, f)
	if err != nil {
		return fmt.Errorf("failed to create categories: %w", err)
	}
	log.Printf("%d categories available", len(categories))

	posts, err := createPosts(f, r, users, categories, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("%d posts created", len(posts))

	comments, err := createComments(f, r, users, posts)
	if err != nil {
		return fmt.Errorf("failed to create comments: %w", err)
	}
	log.Printf("%d comments created", len(comments))

	if err := createVotes(f, r, users, posts, comments); err != nil {
		return fmt.Errorf("failed to create votes: %w", err)
	}

	if err := createMemberships(f, r, users, posts); err != nil {
		return fmt.Errorf("failed to create favorites and subscriptions: %w", err)
	}

	if !opts.DryRun {
		if err := recomputeDerivedScores(db); err != nil {
			return fmt.Errorf("failed to recompute derived scores: %w", err)
		}
	}

	log.Println("Database seeding completed successfully")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE votes, favorites, subscriptions, comments, post_categories, posts, categories, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

func createUsers(f *Factory, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)

	// A stable admin account makes manual testing easier.
	if count > 0 {
		admin, err := f.CreateUser(func(u *models.User) {
			u.Login = "admin"
			u.Email = "admin@example.com"
			u.Role = models.RoleAdmin
		})
		if err == nil {
			users = append(users, admin)
		}
	}

	for i := len(users); i < count; i++ {
		user, err := f.CreateUser()
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, user)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}
	return users, nil
}

func createPosts(f *Factory, r *rand.Rand, users []*models.User, categories []models.Category, count int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[r.Intn(len(users))]

		// one to three categories per post
		picked := pickCategories(r, categories, 1+r.Intn(3))

		post, err := f.CreatePost(author, picked, func(p *models.Post) {
			// a small share of posts start out hidden by moderation
			if r.Intn(20) == 0 {
				p.Status = models.StatusInactive
			}
		})
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d posts...", i)
		}
	}
	return posts, nil
}

func pickCategories(r *rand.Rand, categories []models.Category, n int) []models.Category {
	if n > len(categories) {
		n = len(categories)
	}
	picked := make([]models.Category, 0, n)
	seen := make(map[uint]bool, n)
	for len(picked) < n {
		c := categories[r.Intn(len(categories))]
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		picked = append(picked, c)
	}
	return picked
}

func createComments(f *Factory, r *rand.Rand, users []*models.User, posts []*models.Post) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0, len(posts)*3)
	for _, post := range posts {
		if !post.Active() {
			continue
		}
		top := make([]*models.Comment, 0, 4)
		for i := 0; i < 1+r.Intn(4); i++ {
			author := users[r.Intn(len(users))]
			comment, err := f.CreateComment(author, post)
			if err != nil {
				return nil, err
			}
			top = append(top, comment)
			comments = append(comments, comment)
		}

		// some replies under the top-level comments
		for i := 0; i < r.Intn(3); i++ {
			parent := top[r.Intn(len(top))]
			author := users[r.Intn(len(users))]
			reply, err := f.CreateComment(author, post, func(c *models.Comment) {
				c.ParentID = &parent.ID
			})
			if err != nil {
				return nil, err
			}
			comments = append(comments, reply)
		}

		// occasionally the author accepts an answer
		if len(top) > 0 && r.Intn(3) == 0 && !f.opts.DryRun {
			solution := top[r.Intn(len(top))]
			if err := f.db.Model(post).Update("solution_comment_id", solution.ID).Error; err != nil {
				return nil, err
			}
		}
	}
	return comments, nil
}

// splitVotes divides n votes into up and down counts for the given upvote
// percentage.
func splitVotes(n, upPct int) (up, down int) {
	if n <= 0 {
		return 0, 0
	}
	if upPct < 0 {
		upPct = 0
	}
	if upPct > 100 {
		upPct = 100
	}
	up = n * upPct / 100
	down = n - up
	return up, down
}

func createVotes(f *Factory, r *rand.Rand, users []*models.User, posts []*models.Post, comments []*models.Comment) error {
	voteOn := func(targetKind string, targetID uint, authorID uint, total int) error {
		up, down := splitVotes(total, upvoteShare)
		for i := 0; i < up+down; i++ {
			voter := users[r.Intn(len(users))]
			// self-votes are rejected by the engine; do not seed them either
			if voter.ID == authorID {
				continue
			}
			value := models.VoteUp
			if i >= up {
				value = models.VoteDown
			}
			if err := f.CreateVote(voter, targetKind, targetID, value); err != nil {
				return err
			}
		}
		return nil
	}

	for _, post := range posts {
		if err := voteOn(models.TargetPost, post.ID, post.AuthorID, r.Intn(len(users))); err != nil {
			return err
		}
	}
	for _, comment := range comments {
		if err := voteOn(models.TargetComment, comment.ID, comment.AuthorID, r.Intn(1+len(users)/2)); err != nil {
			return err
		}
	}
	return nil
}

func createMemberships(f *Factory, r *rand.Rand, users []*models.User, posts []*models.Post) error {
	for _, post := range posts {
		if !post.Active() {
			continue
		}
		for i := 0; i < r.Intn(1+len(users)/4); i++ {
			user := users[r.Intn(len(users))]
			if err := f.CreateFavorite(user, post); err != nil {
				return err
			}
			// subscribers are a subset of favoriters, roughly
			if r.Intn(2) == 0 {
				if err := f.CreateSubscription(user, post); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// recomputeDerivedScores rebuilds post engagement scores and user ratings
// from the vote ledger.
func recomputeDerivedScores(db *gorm.DB) error {
	if err := db.Exec(`
		UPDATE posts SET engagement_score = COALESCE((
			SELECT SUM(CASE WHEN v.value = 'up' THEN 1 ELSE -1 END)
			FROM votes v
			WHERE v.target_kind = 'post' AND v.target_id = posts.id
		), 0)`).Error; err != nil {
		return err
	}

	return db.Exec(`
		UPDATE users SET rating = COALESCE((
			SELECT SUM(CASE WHEN v.value = 'up' THEN 1 ELSE -1 END)
			FROM votes v
			WHERE (v.target_kind = 'post' AND v.target_id IN (SELECT id FROM posts WHERE author_id = users.id))
			   OR (v.target_kind = 'comment' AND v.target_id IN (SELECT id FROM comments WHERE author_id = users.id))
		), 0)`).Error
}
